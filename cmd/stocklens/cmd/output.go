package cmd

import (
	"encoding/json"
	"io"

	"StockLens/internal/model"
)

// Exit codes by error kind.
const (
	exitInternal   = 1
	exitNotFound   = 2
	exitBadRequest = 3
)

// ExitCode maps an error onto the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch model.Classify(err) {
	case model.KindNotFound:
		return exitNotFound
	case model.KindBadRequest:
		return exitBadRequest
	default:
		return exitInternal
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printError(w io.Writer, err error) {
	printJSON(w, model.NewErrorPayload(err))
}
