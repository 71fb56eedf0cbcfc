package cache

import "fmt"

func formKey(formID uint) string {
	return fmt.Sprintf("form:%d:definition", formID)
}

func sessionKey(formID uint, sessionID string) string {
	return fmt.Sprintf("form:%d:session:%s", formID, sessionID)
}

func formSessionsPattern(formID uint) string {
	return fmt.Sprintf("form:%d:session:*", formID)
}
