package config

import (
	"fmt"

	"github.com/atlanticdynamic/toolgate/internal/fancy"
)

// String returns a pretty-printed tree representation of the config
func (c *Config) String() string {
	return ConfigTree(c)
}

// ConfigTree renders cfg as a tree. Secrets are masked.
func ConfigTree(cfg *Config) string {
	name, version := cfg.ResolveIdentity()

	t := fancy.Tree()
	t.Root(fancy.RootStyle.Render(fmt.Sprintf("%s Config (%s)", name, version)))

	t.Child(fancy.KV("Listen", cfg.Listen))
	t.Child(fancy.KV("Tools Directory", cfg.ToolsDirectory))

	builtins := fancy.BranchNode("Builtin Tools", fmt.Sprintf("(%d)", len(cfg.BuiltinTools)))
	for _, b := range cfg.BuiltinTools {
		builtins.Child(fancy.ToolStyle.Render(b))
	}
	t.Child(builtins)

	t.Child(authTree(cfg.Auth, cfg.LegacyGlobalToken))

	t.Child(fancy.Branch("Logging",
		fancy.KV("Level", cfg.Logging.Level),
		fancy.KV("Format", cfg.Logging.Format),
		fancy.KV("Output", cfg.Logging.Output),
	))

	t.Child(fancy.Branch("HTTP",
		fancy.KV("Read Timeout", cfg.HTTP.ReadTimeout),
		fancy.KV("Write Timeout", cfg.HTTP.WriteTimeout),
		fancy.KV("Idle Timeout", cfg.HTTP.IdleTimeout),
		fancy.KV("Drain Timeout", cfg.HTTP.DrainTimeout),
		fancy.KV("Max Request Bytes", cfg.HTTP.MaxRequestBytes),
	))

	t.Child(fancy.KV("Capture Max Body Size", cfg.Capture.MaxBodySize))
	t.Child(fancy.KV("Script Timeout", cfg.Scripts.Timeout))

	return t.String()
}

func authTree(a Auth, legacy bool) any {
	var strategy string
	switch {
	case a.JWT != nil:
		strategy = "jwt callback"
	case a.Token != "":
		strategy = "static token"
	default:
		strategy = fancy.WarnStyle.Render("none configured")
	}

	branch := fancy.Branch("Auth", fancy.KV("Strategy", strategy))
	if a.Token != "" {
		branch.Child(fancy.KV("Token", mask(a.Token)))
	}
	if a.JWT != nil {
		branch.Child(fancy.Branch("JWT",
			fancy.KV("Secret", mask(a.JWT.Secret)),
			fancy.KV("Issuer", a.JWT.Issuer),
			fancy.KV("Audience", a.JWT.Audience),
		))
	}
	if a.CallbackTimeout > 0 {
		branch.Child(fancy.KV("Callback Timeout", a.CallbackTimeout))
	}
	if legacy {
		branch.Child(fancy.WarnStyle.Render("legacy global token slot enabled"))
	}
	return branch
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return "********"
}
