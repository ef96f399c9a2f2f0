//go:build darwin

package serial

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

const openFlags = unix.O_NOCTTY | unix.O_NONBLOCK

func configure(f *os.File, baud int) error {
	if err := ValidateBaud(baud); err != nil {
		return err
	}
	return withFd(f, func(fd int) error {
		t, err := unix.IoctlGetTermios(fd, unix.TIOCGETA)
		if err != nil {
			return fmt.Errorf("get termios: %w", err)
		}

		t.Cflag &^= unix.PARENB | unix.CSTOPB | unix.CSIZE | unix.CRTSCTS
		t.Cflag |= unix.CS8 | unix.CREAD | unix.CLOCAL
		t.Ispeed = uint64(baud)
		t.Ospeed = uint64(baud)

		t.Lflag &^= unix.ICANON | unix.ECHO | unix.ECHOE | unix.ISIG
		t.Iflag &^= unix.IXON | unix.IXOFF | unix.IXANY
		t.Oflag &^= unix.OPOST
		t.Cc[unix.VMIN] = 1
		t.Cc[unix.VTIME] = 0

		if err := unix.IoctlSetTermios(fd, unix.TIOCSETA, t); err != nil {
			return fmt.Errorf("set termios: %w", err)
		}
		return nil
	})
}
