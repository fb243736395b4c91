// Package utils provides time formatting helpers shared by the output formats.
package utils
