package app

import (
	"errors"

	"github.com/TOTORON9625/DevTodo/internal/gateway"
	"github.com/TOTORON9625/DevTodo/internal/repository"
)

// describe turns an error into notification text.
func describe(err error) string {
	var partial *repository.PartialError
	switch {
	case err == nil:
		return ""
	case gateway.IsOffline(err):
		return "Offline: the server cannot be reached. Cached pages only."
	case gateway.IsAuthRequired(err):
		return "Not signed in. Run `devtodo login` first."
	case errors.As(err, &partial):
		return "Partially applied, nothing was rolled back: " + partial.Error()
	}
	return err.Error()
}
