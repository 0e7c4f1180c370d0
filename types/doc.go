// Package types provides core types shared across the colloquy engine.
// This package has ZERO dependencies on other colloquy packages to avoid
// circular imports. All other packages should import types from here.
package types
