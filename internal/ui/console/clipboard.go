package console

import "github.com/atotto/clipboard"

// SystemClipboard is the host clipboard collaborator backed by the OS
// clipboard.
type SystemClipboard struct{}

func (SystemClipboard) Set(text string) error {
	return clipboard.WriteAll(text)
}

func (SystemClipboard) Get() (string, error) {
	return clipboard.ReadAll()
}
