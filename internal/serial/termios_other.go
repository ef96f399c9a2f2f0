//go:build !linux && !darwin

package serial

import "os"

const openFlags = 0

func configure(*os.File, int) error {
	return ErrUnsupportedPlatform
}
