package tui

import (
	"expert/chat"
	"expert/session"
)

// Shared state across views
type sharedState struct {
	config TUIConfig
	width  int
	height int
}

// exchange is one question with the answer that followed it.
type exchange struct {
	question string
	answer   string
}

func exchanges(turns []session.Turn) []exchange {
	var result []exchange
	for _, turn := range turns {
		switch turn.Role {
		case session.RoleUser:
			result = append(result, exchange{question: turn.Text})
		case session.RoleAssistant:
			if len(result) == 0 || result[len(result)-1].answer != "" {
				result = append(result, exchange{})
			}
			result[len(result)-1].answer = turn.Text
		}
	}
	return result
}

// lastAnswer is the newest real answer; failed turns are skipped.
func lastAnswer(turns []session.Turn) string {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == session.RoleAssistant && turns[i].Text != chat.NeutralMessage {
			return turns[i].Text
		}
	}
	return ""
}
