package banner

import (
	"fmt"
)

const banner = `
 ██████╗ ██████╗ ███╗   ██╗██╗   ██╗███████╗██████╗ ███████╗ █████╗ ██████╗ ██████╗
██╔════╝██╔═══██╗████╗  ██║██║   ██║██╔════╝██╔══██╗██╔════╝██╔══██╗██╔══██╗██╔══██╗
██║     ██║   ██║██╔██╗ ██║██║   ██║█████╗  ██████╔╝███████╗███████║██║  ██║██████╔╝
██║     ██║   ██║██║╚██╗██║╚██╗ ██╔╝██╔══╝  ██╔══██╗╚════██║██╔══██║██║  ██║██╔══██╗
╚██████╗╚██████╔╝██║ ╚████║ ╚████╔╝ ███████╗██║  ██║███████║██║  ██║██████╔╝██████╔╝
 ╚═════╝ ╚═════╝ ╚═╝  ╚═══╝  ╚═══╝  ╚══════╝╚═╝  ╚═╝╚══════╝╚═╝  ╚═╝╚═════╝ ╚═════╝
`

// Print writes the startup banner with runtime info and a short endpoint
// tour.
func Print(addr, dbPath, sources, version string) {
	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Listen:   %s\n", addr)
	fmt.Printf("DB Path:  %s\n", dbPath)
	if version != "" {
		fmt.Printf("Version:  %s\n", version)
	}
	if sources != "" {
		fmt.Printf("Config sources: %s\n", sources)
	}
	fmt.Println("\n== Endpoints ==================================================")
	fmt.Println("POST /v1/users/sync - Upsert a profile (JSON: external_id, name, email, avatar_url)")
	fmt.Println("POST /v1/conversations/direct - Find or create a 1:1 conversation")
	fmt.Println("POST /v1/messages - Send a message (JSON: conversation_id, sender_id, body)")
	fmt.Println("GET  /v1/conversations?user=<id> - List conversations with unread counts")
	fmt.Println("GET  /v1/ws?user=<id> - Event stream (websocket)")
	fmt.Println("GET  /docs/ - API reference")
	fmt.Println("\n== Examples ===================================================")
	fmt.Printf("curl -X POST 'http://localhost%s/v1/users/sync' -d '{\"external_id\":\"u1\",\"name\":\"Ada\"}'\n", addr)
	fmt.Printf("curl 'http://localhost%s/v1/conversations?user=<id>'\n", addr)
	fmt.Println("\n== Production? =================================================")
	fmt.Println("Set a proper storage path (--db)")
	fmt.Println("Configure API keys (CONVERSADB_API_BACKEND_KEYS et al)")
}
