package config

import (
	"path"
	"runtime/debug"
)

const (
	fallbackName    = "toolgate"
	fallbackVersion = "dev"
)

// ResolveIdentity returns the advertised server name and version. Explicit
// config values win, then the main module's build info, then fixed defaults.
func (c *Config) ResolveIdentity() (name, version string) {
	return resolveIdentity(c.Name, c.Version, debug.ReadBuildInfo)
}

func resolveIdentity(
	name, version string,
	readBuildInfo func() (*debug.BuildInfo, bool),
) (string, string) {
	if name != "" && version != "" {
		return name, version
	}

	var modName, modVersion string
	if info, ok := readBuildInfo(); ok && info != nil {
		if info.Main.Path != "" {
			modName = path.Base(info.Main.Path)
		}
		if v := info.Main.Version; v != "" && v != "(devel)" {
			modVersion = v
		}
	}

	if name == "" {
		name = firstNonEmpty(modName, fallbackName)
	}
	if version == "" {
		version = firstNonEmpty(modVersion, fallbackVersion)
	}
	return name, version
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
