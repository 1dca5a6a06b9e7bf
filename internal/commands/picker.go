package commands

import (
	"context"
	"errors"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/colonyops/margin/internal/comments/controller"
	"github.com/colonyops/margin/internal/core/comment"
)

// formPicker asks on the terminal which provider should take a comment.
type formPicker struct{}

var _ controller.Picker = formPicker{}

func (formPicker) Pick(ctx context.Context, actions []comment.Action) (comment.Action, bool, error) {
	opts := make([]huh.Option[int], len(actions))
	for i, a := range actions {
		opts[i] = huh.NewOption(a.DisplayName(), i)
	}

	var choice int
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Comment with").
				Description("More than one provider accepts a comment here").
				Options(opts...).
				Value(&choice),
		),
	).RunWithContext(ctx)
	if errors.Is(err, huh.ErrUserAborted) {
		return comment.Action{}, false, nil
	}
	if err != nil {
		return comment.Action{}, false, err
	}
	return actions[choice], true, nil
}

// pickerFor returns the terminal picker when the user can answer, else nil
// so the first provider is taken.
func pickerFor(interactive bool) controller.Picker {
	if interactive && term.IsTerminal(int(os.Stdin.Fd())) {
		return formPicker{}
	}
	return nil
}
