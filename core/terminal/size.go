package terminal

import "golang.org/x/sys/unix"

// Size returns the width and height in cells of the terminal open on fd.
func Size(fd int) (width, height int, err error) {
	ws, err := unix.IoctlGetWinsize(fd, unix.TIOCGWINSZ)
	if err != nil {
		return 0, 0, err
	}
	return int(ws.Col), int(ws.Row), nil
}
