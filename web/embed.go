// Package web embeds the built portfolio SPA for single-binary distribution.
package web

import "embed"

// Assets contains the SPA production build output: index.html plus hashed
// bundle files under assets/. The build/ directory is replaced by the
// frontend build; the checked-in shell keeps the binary self-contained.
//
//go:embed all:build
var Assets embed.FS
