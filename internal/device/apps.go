package device

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
)

var fieldCodeRe = regexp.MustCompile(`%[a-zA-Z]`)

func applicationDirs() []string {
	home, _ := os.UserHomeDir()
	return []string{
		"/usr/share/applications",
		"/usr/local/share/applications",
		filepath.Join(home, ".local/share/applications"),
	}
}

// Apps lists installed applications from desktop entries.
func (c *LinuxController) Apps(ctx context.Context) ([]App, error) {
	var apps []App
	for _, dir := range applicationDirs() {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if !strings.HasSuffix(entry.Name(), ".desktop") {
				continue
			}
			if app, ok := parseDesktopFile(filepath.Join(dir, entry.Name())); ok {
				apps = append(apps, app)
			}
		}
	}
	return apps, nil
}

// LaunchApp starts the application whose desktop entry name contains the
// given name, falling back to direct execution. The launched process is
// detached from the daemon.
func (c *LinuxController) LaunchApp(ctx context.Context, name string) error {
	apps, _ := c.Apps(ctx)
	needle := strings.ToLower(name)

	for _, app := range apps {
		if !strings.Contains(strings.ToLower(app.Name), needle) || app.Exec == "" {
			continue
		}
		// Strip desktop-entry field codes like %f, %u.
		cmdline := strings.Fields(fieldCodeRe.ReplaceAllString(app.Exec, ""))
		if len(cmdline) == 0 {
			continue
		}
		return startDetached(cmdline[0], cmdline[1:]...)
	}

	return startDetached(name)
}

func startDetached(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch %s: %w", name, err)
	}
	// Reap the child when it exits so it doesn't linger as a zombie.
	go cmd.Wait()
	return nil
}

func parseDesktopFile(path string) (App, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return App{}, false
	}

	var app App
	for _, line := range strings.Split(string(data), "\n") {
		switch {
		case strings.HasPrefix(line, "Name=") && app.Name == "":
			app.Name = strings.TrimPrefix(line, "Name=")
		case strings.HasPrefix(line, "Exec=") && app.Exec == "":
			app.Exec = strings.TrimPrefix(line, "Exec=")
		}
	}
	return app, app.Name != ""
}
