package assets

import (
	"embed"
	"io/fs"
)

//go:embed banner
var bannerFiles embed.FS

// Banner returns the static page shown in the desktop banner window
func Banner() fs.FS {
	sub, err := fs.Sub(bannerFiles, "banner")
	if err != nil {
		// The directory is embedded at build time
		panic(err)
	}
	return sub
}
