package engine

import "runtime"

// InstallHint suggests how to install ffmpeg, which also provides ffprobe.
func InstallHint(goos string) string {
	if goos == "" {
		goos = runtime.GOOS
	}
	switch goos {
	case "darwin":
		return "brew install ffmpeg"
	case "linux":
		return "install ffmpeg with your distro package manager, e.g. sudo apt install ffmpeg"
	case "windows":
		return "winget install Gyan.FFmpeg (or choco install ffmpeg)"
	}
	return "install ffmpeg using your platform's package manager"
}
