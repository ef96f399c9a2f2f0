//go:build linux

package serial

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

const openFlags = unix.O_NOCTTY | unix.O_NONBLOCK

var baudFlags = map[int]uint32{
	9600:   unix.B9600,
	19200:  unix.B19200,
	38400:  unix.B38400,
	57600:  unix.B57600,
	115200: unix.B115200,
}

func configure(f *os.File, baud int) error {
	speed, ok := baudFlags[baud]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnsupportedBaud, baud)
	}
	return withFd(f, func(fd int) error {
		t, err := unix.IoctlGetTermios(fd, unix.TCGETS)
		if err != nil {
			return fmt.Errorf("get termios: %w", err)
		}

		t.Cflag &^= unix.CBAUD | unix.PARENB | unix.CSTOPB | unix.CSIZE | unix.CRTSCTS
		t.Cflag |= speed | unix.CS8 | unix.CREAD | unix.CLOCAL
		t.Ispeed = speed
		t.Ospeed = speed

		t.Lflag &^= unix.ICANON | unix.ECHO | unix.ECHOE | unix.ISIG
		t.Iflag &^= unix.IXON | unix.IXOFF | unix.IXANY
		t.Oflag &^= unix.OPOST
		t.Cc[unix.VMIN] = 1
		t.Cc[unix.VTIME] = 0

		if err := unix.IoctlSetTermios(fd, unix.TCSETS, t); err != nil {
			return fmt.Errorf("set termios: %w", err)
		}
		return nil
	})
}
