package main

import (
	"fmt"

	"expert/chat"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/glamour"
	color "github.com/fatih/color"
)

type CliResponseHandler struct {
	// CopyAnswer puts a successful answer on the clipboard.
	CopyAnswer bool
}

func (cli CliResponseHandler) FinalText(answer string, err error) {
	if err != nil {
		color.RGB(250, 150, 150).Println(chat.NeutralMessage)
		color.RGB(150, 150, 150).Println("details are in the debug log")
		return
	}

	if cli.CopyAnswer {
		if err := clipboard.WriteAll(answer); err != nil {
			fmt.Printf("Error copying to clipboard: %v\n", err)
		}
	}

	out, err := glamour.Render(answer, "dark")
	if err != nil {
		println(fmt.Sprintf("%v", err))
		fmt.Println(answer)
		return
	}

	fmt.Println(out)
}
