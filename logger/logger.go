package logger

import (
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/fatih/color"
)

// Global logger - accessible from anywhere
var Debug = log.New(io.Discard, "", log.LstdFlags|log.Lshortfile)

// StatusChan receives screen messages while the TUI owns the terminal.
var StatusChan chan string

// Init sets up the logger - call this from main
func Init(filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return err
	}

	f, err := os.OpenFile(filename, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return err
	}
	Debug = log.New(f, "", log.LstdFlags|log.Lshortfile)
	Debug.Println("Logger initialized")
	return nil
}

// Screen prints a status line for the user, or hands it to the TUI.
func Screen(text string, c *color.Color) {
	if StatusChan != nil {
		select {
		case StatusChan <- text:
		default:
		}
		return
	}

	if c == nil {
		println(text)
		return
	}
	c.Println(text)
}
