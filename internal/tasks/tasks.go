package tasks

import (
	"net/http"

	"github.com/spf13/afero"

	"github.com/MD-Studio/studiobuild/internal/config"
	"github.com/MD-Studio/studiobuild/internal/event"
	"github.com/MD-Studio/studiobuild/internal/logging"
)

// Task names
const (
	Clean      = "clean"
	CopyDist   = "copy:dist"
	TSDist     = "ts:dist"
	SassDist   = "sass:dist"
	BowerDist  = "bower:dist"
	Inject     = "inject"
	ServerInit = "server:init"
	Watch      = "watch"
)

// Composite task names
const (
	ServeName   = "serve"
	BuildName   = "build"
	CompileName = "compile"
)

// Deps holds what the leaf tasks need. Zero values get working defaults in
// Register, except Config which is required.
type Deps struct {
	Config *config.Config
	// Fs is the filesystem tasks read and write (default: the OS filesystem)
	Fs afero.Fs
	// Runner runs external compilers (default: ExecRunner)
	Runner CommandRunner
	// Logger receives task diagnostics (default: discard)
	Logger *logging.Logger
	// Bus receives watch events (optional)
	Bus *event.Bus
	// Metrics is served at /metrics when server.metrics is enabled (optional)
	Metrics http.Handler
	// Server is the dev server started by server:init (default: a new DevServer)
	Server *DevServer
}

func (d *Deps) fillDefaults() {
	if d.Fs == nil {
		d.Fs = afero.NewOsFs()
	}
	if d.Runner == nil {
		d.Runner = ExecRunner{}
	}
	if d.Logger == nil {
		d.Logger = logging.NopLogger()
	}
	if d.Server == nil {
		d.Server = NewDevServer(d.Fs, d.Config.Paths.Dist, d.Config.Server, d.Metrics, d.Logger)
	}
}
