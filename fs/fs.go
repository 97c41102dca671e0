// Package appfs embeds the static files the binaries need: SQL migrations and email templates.
package appfs

import "embed"

//go:embed migrations/*.sql assets/templates/email/*
var FS embed.FS
