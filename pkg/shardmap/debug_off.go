//go:build !shardmapdebug

package shardmap

const debugAssertions = false
