package downloader

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"spotube-downloader/internal/shared"
)

// CheckFFmpeg checks if ffmpeg is available, either inside location or on the PATH.
// location may be the binary itself or the directory holding it.
func CheckFFmpeg(location string) bool {
	if location == "" {
		_, err := exec.LookPath("ffmpeg")
		return err == nil
	}
	info, err := os.Stat(location)
	if err != nil {
		return false
	}
	if !info.IsDir() {
		return true
	}
	for _, name := range []string{"ffmpeg", "ffmpeg.exe"} {
		if shared.FileExists(filepath.Join(location, name)) {
			return true
		}
	}
	return false
}

// InstallInstructions returns how to get ffmpeg on the current platform
func InstallInstructions() string {
	switch runtime.GOOS {
	case "windows":
		return "Install ffmpeg with `winget install Gyan.FFmpeg` or download it from https://ffmpeg.org/download.html,\n" +
			"then set FFmpegLocation in config.json (or --ffmpeg-location) to its bin folder."
	case "darwin":
		return "Install ffmpeg with `brew install ffmpeg`."
	default:
		return "Install ffmpeg with your package manager, e.g. `sudo apt install ffmpeg` or `sudo dnf install ffmpeg`."
	}
}
