// Package buildinfo reports the lsmdb build version.
//
// Values come from ldflags when set:
//
//	go build -ldflags "-X github.com/niebayes/LSM-Tree/internal/infra/buildinfo.Version=v1.0.0"
//
// Otherwise they are read from the module and VCS metadata the Go
// toolchain embeds in the binary.
package buildinfo
