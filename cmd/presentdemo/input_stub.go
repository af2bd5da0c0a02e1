//go:build !linux

package main

import (
	"errors"

	"github.com/gogpu/display/config"
)

func tailGestures(*config.Profile, int) error {
	return errors.New("touch input requires Linux")
}
