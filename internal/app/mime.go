package app

import (
	"log"
	"mime"
)

// Upload serving relies on extension lookups; minimal containers ship
// without /etc/mime.types.
func init() {
	ensureMimeType(".jpg", "image/jpeg")
	ensureMimeType(".png", "image/png")
	ensureMimeType(".gif", "image/gif")
	ensureMimeType(".webp", "image/webp")
}

func ensureMimeType(ext, typ string) {
	if mime.TypeByExtension(ext) != "" {
		return
	}
	if err := mime.AddExtensionType(ext, typ); err != nil {
		log.Printf("app: failed to register MIME type for %s: %v", ext, err)
	}
}
