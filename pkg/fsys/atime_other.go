//go:build !linux && !darwin

package fsys

import (
	"os"
	"time"
)

func accessTime(info os.FileInfo) time.Time {
	return info.ModTime()
}
