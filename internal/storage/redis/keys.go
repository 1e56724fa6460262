package redis

import "fmt"

// stateKey holds the roster without history
func stateKey(prefix string) string {
	return fmt.Sprintf("%s:state", prefix)
}

// historyKey holds the history as a list in append order
func historyKey(prefix string) string {
	return fmt.Sprintf("%s:history", prefix)
}
