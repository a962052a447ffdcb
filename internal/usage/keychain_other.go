//go:build !darwin

package usage

import "errors"

func readKeychainPassword(string) (string, error) {
	return "", errors.New("keychain not available on this platform")
}
