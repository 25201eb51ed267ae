// Package api provides the HTTP REST surface of the game server.
//
// Endpoints:
//
// Maps:
//   - GET /api/v1/maps - List maps as id/name pairs
//   - GET /api/v1/maps/{id} - Full map description
//
// Game:
//   - POST /api/v1/game/join - Join a map, returns authToken and playerId
//   - GET /api/v1/game/players - Dogs in the caller's session
//   - GET /api/v1/game/state - Session state: dogs and ground loot
//   - POST /api/v1/game/player/action - Direction command for the caller's dog
//   - POST /api/v1/game/tick - Advance time; only without an internal ticker
//   - GET /api/v1/game/records - Leaderboard page (start, maxItems <= 100)
//
// State stream:
//   - GET /ws - WebSocket upgrade; pushes state after every tick
//
// Everything else is served from the static client directory.
//
// Authentication:
//
// Game endpoints past join require "Authorization: Bearer <token>" with
// the 32-character hex token minted by join. A missing or malformed
// token answers 401 invalidToken; a well-formed token nobody owns
// answers 401 unknownToken.
//
// Error Format:
//
// Errors are JSON with a stable code and a human message:
//
//	{
//	  "code": "mapNotFound",
//	  "message": "Map not found"
//	}
//
// Wrong methods answer 405 invalidMethod with an Allow header listing
// the methods the path supports.
package api
