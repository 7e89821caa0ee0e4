package pdf

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/sammcj/mcp-pdftools/internal/config"
	"github.com/sirupsen/logrus"
)

// GhostscriptPathEnvVar points at a specific Ghostscript binary
const GhostscriptPathEnvVar = "PDFTOOLS_GHOSTSCRIPT_PATH"

// GhostscriptStatus describes the Ghostscript installation found on this machine
type GhostscriptStatus struct {
	Available           bool   `json:"available"`
	Path                string `json:"path,omitempty"`
	Version             string `json:"version,omitempty"`
	Cached              bool   `json:"cached"`
	InstallInstructions string `json:"install_instructions,omitempty"`
	Error               string `json:"error,omitempty"`

	err error
}

// GetGhostscriptPath locates the Ghostscript binary: explicit override,
// then a copy bundled next to the executable, then PATH.
func GetGhostscriptPath() (string, error) {
	if override := os.Getenv(GhostscriptPathEnvVar); override != "" {
		if _, err := os.Stat(override); err != nil {
			return "", fmt.Errorf("%w: %s=%s: %v", ErrGhostscriptNotFound, GhostscriptPathEnvVar, override, err)
		}
		return override, nil
	}

	if bundled := bundledGhostscriptPath(); bundled != "" {
		if _, err := os.Stat(bundled); err == nil {
			return bundled, nil
		}
	}

	name := "gs"
	if runtime.GOOS == "windows" {
		name = "gswin64c.exe"
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w. %s", ErrGhostscriptNotFound, GhostscriptInstallInstructions())
	}
	return path, nil
}

func bundledGhostscriptPath() string {
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	exeDir := filepath.Dir(exe)

	switch runtime.GOOS {
	case "darwin":
		// <App>.app/Contents/MacOS/<exe> -> <App>.app/Contents/Resources/gs/bin/gs
		return filepath.Join(exeDir, "..", "Resources", "gs", "bin", "gs")
	case "windows":
		return filepath.Join(exeDir, "gs", "gswin64c.exe")
	default:
		return filepath.Join(exeDir, "gs", "bin", "gs")
	}
}

// GhostscriptInstallInstructions returns platform specific install guidance
func GhostscriptInstallInstructions() string {
	switch runtime.GOOS {
	case "darwin":
		return "Install Ghostscript with Homebrew: brew install ghostscript"
	case "windows":
		return "Download Ghostscript from https://ghostscript.com/releases/gsdnld.html and add it to PATH"
	default:
		return "Install Ghostscript with your package manager, e.g. sudo apt install ghostscript or sudo dnf install ghostscript"
	}
}

// CheckGhostscriptInstalled returns the installed Ghostscript version.
// Discovery results are kept in the state file for 24 hours.
func CheckGhostscriptInstalled(ctx context.Context) (string, error) {
	status := GhostscriptStatusFor(ctx, config.GetGlobalState())
	if !status.Available {
		return "", status.err
	}
	return status.Version, nil
}

// GhostscriptStatusFor reports the Ghostscript installation, using and refreshing state
func GhostscriptStatusFor(ctx context.Context, state *config.StateFile) GhostscriptStatus {
	path, err := GetGhostscriptPath()
	if err != nil {
		return GhostscriptStatus{
			Available:           false,
			InstallInstructions: GhostscriptInstallInstructions(),
			Error:               err.Error(),
			err:                 err,
		}
	}

	if cachedPath, cachedVersion := state.GetGhostscript(); cachedPath == path && cachedVersion != "" && !state.IsStale() {
		return GhostscriptStatus{Available: true, Path: path, Version: cachedVersion, Cached: true}
	}

	version, err := ghostscriptVersion(ctx, path)
	if err != nil {
		return GhostscriptStatus{
			Available:           false,
			Path:                path,
			InstallInstructions: GhostscriptInstallInstructions(),
			Error:               err.Error(),
			err:                 fmt.Errorf("%w: %v", ErrGhostscriptNotFound, err),
		}
	}

	if err := state.SetGhostscript(path, version); err != nil {
		logrus.WithError(err).Debug("Failed to cache Ghostscript discovery")
	}

	return GhostscriptStatus{Available: true, Path: path, Version: version}
}

func ghostscriptVersion(ctx context.Context, path string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, path, "--version")
	hideWindow(cmd)
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("ghostscript failed to run: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}
