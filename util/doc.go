// Package util holds small string helpers shared by config parsing and logging.
package util
