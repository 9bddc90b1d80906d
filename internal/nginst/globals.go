package nginst

import (
	"github.com/gookit/color"
)

// Build metadata, overridden at build time.
var (
	version   = "dev"
	buildDate = "unknown"
)

// ConfigFile is read when NGINST_CONFIG does not name another file.
var ConfigFile = "/etc/nginst.conf"

// Debug enables streaming of external command output and debugf messages.
var Debug bool

// color helpers
var (
	colInfo    = color.Info // style provided by gookit/color
	colWarn    = color.Warn
	colError   = color.Error
	colSuccess = color.HEX("#1976D2")
	colArrow   = color.HEX("#FFEB3B")
)
