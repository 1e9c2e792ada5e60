package extcmd

import (
	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/scanbinder/internal/config"
	ferrors "git.home.luguber.info/inful/scanbinder/internal/foundation/errors"
)

// OptionPath and OptionEnvFile are the global options read by FromConfig.
const (
	OptionPath    = "path"
	OptionEnvFile = "env-file"
)

// EnvFromConfig reads the dotenv file named by global.env-file. An unset
// option yields an empty map.
func EnvFromConfig(store *config.Store) (map[string]string, error) {
	file, err := store.Global(OptionEnvFile, "")
	if err != nil {
		return nil, err
	}
	if file == "" {
		return map[string]string{}, nil
	}
	env, err := godotenv.Read(file)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "cannot read env-file "+file).
			WithKind(config.ErrConfig).
			WithContext("path", file).
			Build()
	}
	return env, nil
}

// FromConfig builds an ExecRunner from the global path and env-file options.
func FromConfig(store *config.Store) (*ExecRunner, error) {
	path, err := store.Global(OptionPath)
	if err != nil {
		return nil, err
	}
	env, err := EnvFromConfig(store)
	if err != nil {
		return nil, err
	}
	return New(path, env), nil
}
