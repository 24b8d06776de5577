package fontresolver

import (
	"os"
	"path/filepath"
	"runtime"
)

// EnvFontDirs lists extra font directories, separated by os.PathListSeparator.
const EnvFontDirs = "WATERMARKER_FONT_DIRS"

// ResolveFontDirs returns the directories to scan in the following order:
// 1. explicit directories from the CLI or config file
// 2. directories from the WATERMARKER_FONT_DIRS environment variable
// 3. system font directories, unless includeSystem is false
func ResolveFontDirs(explicit []string, includeSystem bool) []string {
	var dirs []string
	dirs = append(dirs, explicit...)

	if env := os.Getenv(EnvFontDirs); env != "" {
		dirs = append(dirs, filepath.SplitList(env)...)
	}

	if includeSystem {
		dirs = append(dirs, systemFontDirs()...)
	}

	return dedupe(dirs)
}

// systemFontDirs returns the platform's default font locations.
func systemFontDirs() []string {
	home, _ := os.UserHomeDir()
	var dirs []string

	switch runtime.GOOS {
	case "darwin":
		dirs = []string{
			"/System/Library/Fonts",
			"/Library/Fonts",
		}
		if home != "" {
			dirs = append(dirs, filepath.Join(home, "Library", "Fonts"))
		}
	case "windows":
		if windir := os.Getenv("WINDIR"); windir != "" {
			dirs = append(dirs, filepath.Join(windir, "Fonts"))
		} else {
			dirs = append(dirs, `C:\Windows\Fonts`)
		}
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			dirs = append(dirs, filepath.Join(localAppData, "Microsoft", "Windows", "Fonts"))
		}
	default:
		dirs = []string{
			"/usr/share/fonts",
			"/usr/local/share/fonts",
		}
		if home != "" {
			dirs = append(dirs,
				filepath.Join(home, ".fonts"),
				filepath.Join(home, ".local", "share", "fonts"),
			)
		}
	}

	return dirs
}

func dedupe(dirs []string) []string {
	seen := make(map[string]bool, len(dirs))
	out := make([]string, 0, len(dirs))
	for _, d := range dirs {
		if d == "" {
			continue
		}
		clean := filepath.Clean(d)
		if seen[clean] {
			continue
		}
		seen[clean] = true
		out = append(out, clean)
	}
	return out
}
