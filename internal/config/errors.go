package config

import (
	"errors"
	"fmt"

	ferrors "git.home.luguber.info/inful/scanbinder/internal/foundation/errors"
)

// Sentinels matched with errors.Is against the classified errors returned by this package.
var (
	ErrConfig         = errors.New("configuration error")
	ErrOptionMissing  = errors.New("option missing")
	ErrPluginNotFound = errors.New("plugin not found")
)

func configError(format string, args ...any) error {
	return ferrors.NewErrorf(ferrors.CategoryConfig, format, args...).
		WithKind(ErrConfig).
		Build()
}

func wrapConfigError(err error, format string, args ...any) error {
	return ferrors.WrapError(err, ferrors.CategoryConfig, fmt.Sprintf(format, args...)).
		WithKind(ErrConfig).
		Build()
}

func optionMissing(target, key string) error {
	return ferrors.NewErrorf(ferrors.CategoryConfig, "option '%s' for '%s' target is not found", key, target).
		WithKind(ErrOptionMissing).
		WithContext("target", target).
		WithContext("option", key).
		Build()
}

func pluginNotFound(target, plugin string) error {
	return ferrors.NewErrorf(ferrors.CategoryPlugin, "unknown plugin '%s' for target '%s'", plugin, target).
		WithKind(ErrPluginNotFound).
		WithContext("target", target).
		WithContext("plugin", plugin).
		Build()
}
