//go:build shardmapdebug

package shardmap

// Built with -tags shardmapdebug, TryInsertNew panics if the key is present.
const debugAssertions = true
