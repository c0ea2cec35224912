package command

import "context"

type Command string

const (
	Reset Command = "reset"
	Quit  Command = "quit"
	Show  Command = "show"
	None  Command = "none"
)

type Parser interface {
	ParseCommand(ctx context.Context, input string) (Command, error)
}
