package environment

import (
	"path/filepath"
	"runtime"
	"strconv"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/spf13/afero"
)

// EnvFileName is the optional dotenv file loaded from the working directory
// before environment variables are read.
const EnvFileName = ".env"

// Environment holds service configuration loaded from the OS or defaults.
type Environment struct {
	Host              string `env:"HOST,default=127.0.0.1"`
	Port              int    `env:"PORT,default=8080"`
	BaseURL           string `env:"BASE_URL,default=http://127.0.0.1"`
	MediaRoot         string `env:"MEDIA_ROOT,default=./media"`
	DatabasePath      string `env:"DATABASE_PATH,default=./audioforge.db"`
	MaxWorkers        int    `env:"MAX_WORKERS,default=0"`
	ConvertTimeoutSec int    `env:"CONVERT_TIMEOUT,default=600"`
	FFmpegBin         string `env:"FFMPEG_BIN,default=ffmpeg"`
	Debug             string `env:"DEBUG,default=0"`
	Extras            env.EnvSet
}

// loadDotEnv loads the .env file when one exists in the working directory.
// Missing files are not an error; a dotenv file is optional.
func loadDotEnv(fs afero.Fs, pwd string) {
	envFile := filepath.Join(pwd, EnvFileName)
	if exists, _ := afero.Exists(fs, envFile); exists {
		_ = godotenv.Load(envFile)
	}
}

// NewEnvironment initializes and returns a new Environment based on provided
// or default settings. Passing a non-nil environ skips the OS lookup and is
// the injection point for tests.
func NewEnvironment(fs afero.Fs, environ *Environment) (*Environment, error) {
	if environ != nil {
		normalized := *environ
		if normalized.MaxWorkers <= 0 {
			normalized.MaxWorkers = runtime.NumCPU()
		}
		return &normalized, nil
	}

	pwd, _ := filepath.Abs(".")
	loadDotEnv(fs, pwd)

	environment := &Environment{}
	extras, err := env.UnmarshalFromEnviron(environment)
	if err != nil {
		return nil, err
	}
	environment.Extras = extras

	// Worker pool defaults to one slot per available core.
	if environment.MaxWorkers <= 0 {
		environment.MaxWorkers = runtime.NumCPU()
	}

	return environment, nil
}

// ListenAddr returns the host:port pair the HTTP server binds to.
func (e *Environment) ListenAddr() string {
	return e.Host + ":" + strconv.Itoa(e.Port)
}

// DownloadBase returns the public prefix embedded in download URLs,
// e.g. "http://127.0.0.1:8080".
func (e *Environment) DownloadBase() string {
	return e.BaseURL + ":" + strconv.Itoa(e.Port)
}
