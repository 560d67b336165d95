package notify

import (
	"fmt"
	"strings"
)

func StoreMessage(name, description string) string {
	desc := strings.TrimSpace(description)
	if desc == "" {
		return fmt.Sprintf("🛍️ New Store: %s", name)
	}
	return fmt.Sprintf("🛍️ New Store: %s\n%s", name, desc)
}

func ProductMessage(storeName, name, description string) string {
	return fmt.Sprintf("🆕 New Product from %s\n%s\n%s", storeName, name, description)
}
