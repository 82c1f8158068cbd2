package tui

import "github.com/atotto/clipboard"

// copyToClipboard is replaced in tests so they never touch the system clipboard.
var copyToClipboard = clipboard.WriteAll
