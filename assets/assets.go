package assets

import "embed"

//go:embed css js img
var AssetsFS embed.FS

// DefaultAvatar is the path of the placeholder avatar inside AssetsFS
const DefaultAvatar = "img/default-avatar.png"
