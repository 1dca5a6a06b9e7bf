package margin

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/colonyops/margin/internal/comments/controller"
	"github.com/colonyops/margin/internal/comments/widget"
	"github.com/colonyops/margin/internal/core/config"
	"github.com/colonyops/margin/internal/core/document"
	"github.com/colonyops/margin/internal/core/eventbus"
)

// App is the central entry point for margin operations.
// Commands and the TUI consume App instead of cherry-picking raw dependencies.
type App struct {
	Config   *config.Config
	Bus      *eventbus.EventBus
	Comments *CommentService
	Widgets  *widget.Factory

	log zerolog.Logger
}

// NewApp constructs an App from explicit dependencies.
func NewApp(cfg *config.Config, bus *eventbus.EventBus, log zerolog.Logger) *App {
	return &App{
		Config:   cfg,
		Bus:      bus,
		Comments: NewCommentService(bus, log, cfg.CommentingEnabled(), cfg.Comments.Exclude),
		Widgets:  widget.NewFactory(log),
		log:      log,
	}
}

// Start dispatches bus events until ctx is cancelled.
func (a *App) Start(ctx context.Context) {
	go a.Bus.Start(ctx)
}

// EditorOptions are the interactive collaborators of one editor.
type EditorOptions struct {
	Picker controller.Picker
	Panel  controller.Panel
	Gutter controller.Gutter
}

// OpenEditor creates an editor showing m and the comment controller driving
// it.
func (a *App) OpenEditor(ctx context.Context, id string, m *document.Model, opts EditorOptions) (*document.Editor, *controller.Controller) {
	ed := document.NewEditor(id)
	if m != nil {
		ed.SetModel(m)
	}

	ctrl := controller.New(ctx, a.log, ed, a.Comments, a.Bus, a.Widgets, controller.Options{
		Debounce: a.Config.Comments.Debounce,
		OpenView: a.Config.OpenViewPolicy(),
		Picker:   opts.Picker,
		Panel:    opts.Panel,
		Gutter:   opts.Gutter,
	})
	return ed, ctrl
}
