// Package buildinfo exposes the version of the vftledger binary.
//
// Values are injected at build time via ldflags:
//
//	go build -ldflags "-X github.com/yndnr/vftledger-go/internal/infra/buildinfo.Version=v1.0.0 \
//	  -X github.com/yndnr/vftledger-go/internal/infra/buildinfo.Commit=abc123"
//
// When a value is not injected it falls back to the module build
// information embedded by the Go toolchain.
package buildinfo
