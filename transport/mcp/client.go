package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/battlecode/battlecode-hackathon-sub000/game/engine"
	"github.com/battlecode/battlecode-hackathon-sub000/game/service"
	"github.com/battlecode/battlecode-hackathon-sub000/protocol"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Battlecode Hackathon",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Battlecode Hackathon - MCP Interface

This is a thin client that proxies all requests to the REST API server.
Bots play over TCP or websocket; these tools administer and spectate games.

AVAILABLE TOOLS:
- list_maps: List map files the server can host
- create_game: Open a lobby on a map
- list_games: List lobbies, running and finished games
- game_status: Get one game's teams, turn and winner
- keyframe: Render the current board of a game
- describe_location: Inspect one cell of a game's board
- game_rules: Get the rules and the wire protocol`),
	)

	c.registerTools()
}

func gameIDProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Game ID",
	}
}

func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_maps",
		Description: "List the maps available for new games",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListMaps)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_game",
		Description: "Open a lobby on a map. Bots join it with a login command carrying the game ID.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"map": map[string]interface{}{
					"type":        "string",
					"description": "Map name (optional, defaults to the server default)",
				},
				"teams": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Team names; leave empty to let the first logins pick names",
				},
				"timeout_ms": map[string]interface{}{
					"type":        "number",
					"description": "Per-turn timeout in milliseconds",
				},
				"max_turns": map[string]interface{}{
					"type":        "number",
					"description": "Turn limit before the winner is decided by threshold",
				},
			},
		},
	}, c.handleCreateGame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_games",
		Description: "List hosted games",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"status": map[string]interface{}{
					"type":        "string",
					"enum":        []string{protocol.StatusLobby, protocol.StatusRunning, protocol.StatusFinished, protocol.StatusCancelled},
					"description": "Only list games with this status",
				},
			},
		},
	}, c.handleListGames)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_status",
		Description: "Get the status, teams and turn of a game",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"game_id": gameIDProperty()},
			Required:   []string{"game_id"},
		},
	}, c.handleGameStatus)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "keyframe",
		Description: "Render the full board of a running or finished game",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"game_id": gameIDProperty()},
			Required:   []string{"game_id"},
		},
	}, c.handleKeyframe)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_location",
		Description: "Describe the tile, entity and sector at a board location. y grows upwards from the bottom row.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": gameIDProperty(),
				"x": map[string]interface{}{
					"type":        "number",
					"description": "Column (0-based)",
				},
				"y": map[string]interface{}{
					"type":        "number",
					"description": "Row (0-based, bottom row is 0)",
				},
			},
			Required: []string{"game_id", "x", "y"},
		},
	}, c.handleDescribeLocation)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_rules",
		Description: "Get the game rules and protocol summary",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameRules)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			if code := errResp["code"]; code != "" {
				return fmt.Errorf("%s: %s", code, msg)
			}
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

func gameIDArg(request mcp.CallToolRequest) (string, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	id, _ := args["game_id"].(string)
	if id == "" {
		return "", fmt.Errorf("game_id is required")
	}
	return url.PathEscape(id), nil
}

// Tool handlers

func (c *Client) handleListMaps(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var maps []*service.MapInfo
	if err := c.apiCall(ctx, "GET", "/api/maps", nil, &maps); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(maps) == 0 {
		return mcp.NewToolResultText("No maps available"), nil
	}

	var result strings.Builder
	fmt.Fprintf(&result, "Available maps (%d):\n", len(maps))
	for _, m := range maps {
		fmt.Fprintf(&result, "- %s: %dx%d, sector %d, %d teams, %d entities",
			m.Name, m.Width, m.Height, m.SectorSize, m.TeamCount, m.Entities)
		if m.Title != "" && m.Title != m.Name {
			fmt.Fprintf(&result, " (%s)", m.Title)
		}
		result.WriteString("\n")
	}
	return mcp.NewToolResultText(result.String()), nil
}

func (c *Client) handleCreateGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})

	req := service.CreateGameRequest{}
	req.Map, _ = args["map"].(string)
	if names, ok := args["teams"].([]interface{}); ok {
		for _, n := range names {
			name, _ := n.(string)
			req.Teams = append(req.Teams, protocol.TeamSpec{Name: name})
		}
	}
	if v, ok := args["timeout_ms"].(float64); ok {
		req.TimeoutMS = int(v)
	}
	if v, ok := args["max_turns"].(float64); ok {
		req.MaxTurns = int(v)
	}

	var info service.GameInfo
	if err := c.apiCall(ctx, "POST", "/api/games", req, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created game: %s\nMap: %s\nTeams: %d\nBots join with {\"command\":\"login\",\"name\":\"<team>\",\"gameID\":\"%s\"}\n",
		info.ID, info.Map, len(info.Teams), info.ID)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListGames(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	path := "/api/games"
	if status, _ := args["status"].(string); status != "" {
		path += "?status=" + url.QueryEscape(status)
	}

	var resp struct {
		Count int                 `json:"count"`
		Games []*service.GameInfo `json:"games"`
	}
	if err := c.apiCall(ctx, "GET", path, nil, &resp); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if resp.Count == 0 {
		return mcp.NewToolResultText("No games"), nil
	}

	var result strings.Builder
	fmt.Fprintf(&result, "Games (%d):\n", resp.Count)
	for _, g := range resp.Games {
		fmt.Fprintf(&result, "- %s [%s] map=%s turn=%d\n", g.ID, g.Status, g.Map, g.Turn)
	}
	return mcp.NewToolResultText(result.String()), nil
}

func (c *Client) handleGameStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	gameID, err := gameIDArg(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var info service.GameInfo
	if err := c.apiCall(ctx, "GET", "/api/games/"+gameID, nil, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatGameInfo(&info)), nil
}

// loadBoard fetches a game's keyframe and the map it is played on.
func (c *Client) loadBoard(ctx context.Context, gameID string) (*engine.Keyframe, *engine.MapFile, error) {
	var info service.GameInfo
	if err := c.apiCall(ctx, "GET", "/api/games/"+gameID, nil, &info); err != nil {
		return nil, nil, err
	}
	var keyframe engine.Keyframe
	if err := c.apiCall(ctx, "GET", "/api/games/"+gameID+"/keyframe", nil, &keyframe); err != nil {
		return nil, nil, err
	}
	var world engine.MapFile
	if err := c.apiCall(ctx, "GET", "/api/maps/"+url.PathEscape(info.Map), nil, &world); err != nil {
		return nil, nil, err
	}
	return &keyframe, &world, nil
}

func (c *Client) handleKeyframe(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	gameID, err := gameIDArg(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	keyframe, world, err := c.loadBoard(ctx, gameID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatBoard(keyframe, world)), nil
}

func (c *Client) handleDescribeLocation(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	gameID, err := gameIDArg(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	args := request.Params.Arguments.(map[string]interface{})
	x, okX := args["x"].(float64)
	y, okY := args["y"].(float64)
	if !okX || !okY {
		return mcp.NewToolResultError("x and y are required"), nil
	}

	keyframe, world, err := c.loadBoard(ctx, gameID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	loc := engine.Location{X: int(x), Y: int(y)}
	if !world.InBounds(loc) {
		return mcp.NewToolResultError(fmt.Sprintf("Location (%d, %d) is out of bounds. Board is %dx%d (x 0-%d, y 0-%d)",
			loc.X, loc.Y, world.Width, world.Height, world.Width-1, world.Height-1)), nil
	}

	var result strings.Builder
	fmt.Fprintf(&result, "Location (%d, %d)\n", loc.X, loc.Y)
	if world.TileAt(loc) == engine.Dirt {
		fmt.Fprintf(&result, "Tile: dirt (units thrown onto it take %d damage)\n", engine.DirtDamage)
	} else {
		result.WriteString("Tile: ground\n")
	}

	size := world.SectorSize
	topLeft := engine.Location{X: loc.X / size * size, Y: loc.Y / size * size}
	for _, s := range keyframe.Sectors {
		if s.TopLeft == topLeft {
			fmt.Fprintf(&result, "Sector at (%d, %d): controlled by team %d\n", topLeft.X, topLeft.Y, s.ControllingTeamID)
		}
	}

	found := false
	for _, e := range keyframe.Entities {
		if e.Location != loc {
			continue
		}
		found = true
		result.WriteString("Entity: " + formatEntity(e) + "\n")
	}
	if !found {
		result.WriteString("Entity: none (free cell)\n")
	}
	return mcp.NewToolResultText(result.String()), nil
}

func (c *Client) handleGameRules(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(gameRules()), nil
}

func gameRules() string {
	return fmt.Sprintf(`Battlecode Hackathon - Rules

BOARD:
- A grid of ground (G) and dirt (D) tiles, divided into square sectors.
- Locations are (x, y) with y growing upwards; tile rows are stored top row first.
- Entities: throwers (the only units that act), statues and hedges.

TURNS:
- Teams play in rotation, one turn each. Turn 0 is the initial state.
- A turn is a batch of at most %d actions; each action succeeds or is rejected with a reason.
- Every %d turns each team spawns a thrower next to its oldest statue in every sector it controls.

ACTIONS (thrower only, not while held, not on cooldown):
- move to an adjacent free cell (cooldown %d)
- build a statue on an adjacent free cell (cooldown %d, hp %d)
- pickup an adjacent unheld thrower (cooldown %d, carry limit %d turns then %d fatigue damage per turn)
- throw the held unit in a direction; it flies up to %d cells and lands before the first obstacle (cooldown %d)
  a hit deals %d to throwers, %d to statues, %d to hedges and %d recoil to the thrown unit; dirt adds %d
- disintegrate an own unit

SECTORS:
- A sector is controlled by a team when it is the only team with statues in it.

WINNING:
- The game ends at the turn limit. The provisional rule awards the win to team 1.

PROTOCOL:
- One JSON command per line (TCP) or per frame (websocket).
- login {name, key?, gameID?} -> login_confirm {name, teamID, gameID}
- start, then next_turn diffs; answer with make_turn {turn, actions} when next_team is yours.
- spectate {gameID?} -> keyframe, then next_turn diffs.
`,
		engine.MaxBatchSize, engine.SpawnPeriod,
		engine.MoveCooldown, engine.BuildCooldown, engine.BuiltStatueHP,
		engine.PickupCooldown, engine.HoldDuration, engine.FatigueDamage,
		engine.ThrowRange+1, engine.ThrowCooldown,
		engine.ThrowerHitDamage, engine.StatueHitDamage, engine.HedgeHitDamage, engine.RecoilDamage, engine.DirtDamage)
}

// Formatting helpers

func formatGameInfo(info *service.GameInfo) string {
	var result strings.Builder
	fmt.Fprintf(&result, "Game: %s\nMap: %s\nStatus: %s\nTurn: %d | Next team: %d\n",
		info.ID, info.Map, info.Status, info.Turn, info.NextTeam)
	if info.Winner != nil {
		fmt.Fprintf(&result, "Winner: team %d\n", *info.Winner)
	}
	result.WriteString("Teams:\n")
	for _, t := range info.Teams {
		state := "waiting"
		if t.Connected {
			state = "connected"
		}
		name := t.Name
		if name == "" {
			name = "(open)"
		}
		fmt.Fprintf(&result, "  %d %s [%s]\n", t.ID, name, state)
	}
	fmt.Fprintf(&result, "Spectators: %d\nCreated: %s\n", info.Spectators, info.CreatedAt.Format("2006-01-02 15:04:05"))
	return result.String()
}

func formatEntity(e engine.EntityData) string {
	s := fmt.Sprintf("#%d %s team=%d hp=%d", e.ID, e.Type, e.TeamID, e.HP)
	if e.CooldownEnd != nil {
		s += fmt.Sprintf(" cooldown_end=%d", *e.CooldownEnd)
	}
	if e.HeldBy != nil {
		s += fmt.Sprintf(" held_by=%d", *e.HeldBy)
	}
	if e.Holding != nil {
		s += fmt.Sprintf(" holding=%d", *e.Holding)
	}
	return s
}

// entityChar renders a thrower as its team digit, a statue as a letter
// (a for team 1, b for team 2, ...) and a hedge as '#'.
func entityChar(e engine.EntityData) byte {
	switch e.Type {
	case engine.Hedge:
		return '#'
	case engine.Statue:
		if e.TeamID == engine.NeutralTeamID {
			return '*'
		}
		return byte('a' + e.TeamID - 1)
	default:
		return byte('0' + e.TeamID)
	}
}

func formatBoard(keyframe *engine.Keyframe, world *engine.MapFile) string {
	occupant := make(map[engine.Location]engine.EntityData, len(keyframe.Entities))
	for _, e := range keyframe.Entities {
		// Held units share the holder's cell; draw the holder.
		if e.HeldBy == nil {
			occupant[e.Location] = e
		}
	}

	var result strings.Builder
	fmt.Fprintf(&result, "Game %s | Turn %d | Next team %d | %dx%d\n\n",
		keyframe.GameID, keyframe.Turn, keyframe.NextTeam, world.Width, world.Height)

	for y := world.Height - 1; y >= 0; y-- {
		for x := 0; x < world.Width; x++ {
			loc := engine.Location{X: x, Y: y}
			if e, ok := occupant[loc]; ok {
				result.WriteByte(entityChar(e))
			} else if world.TileAt(loc) == engine.Dirt {
				result.WriteByte(':')
			} else {
				result.WriteByte('.')
			}
		}
		result.WriteString("\n")
	}
	result.WriteString("\nLegend: digit = thrower of that team, letter = statue (a=1), # = hedge, : = dirt\n")

	controlled := map[engine.TeamID]int{}
	for _, s := range keyframe.Sectors {
		if s.ControllingTeamID != engine.NeutralTeamID {
			controlled[s.ControllingTeamID]++
		}
	}
	teams := make([]engine.TeamID, 0, len(controlled))
	for team := range controlled {
		teams = append(teams, team)
	}
	slices.Sort(teams)
	result.WriteString("Sectors:")
	if len(teams) == 0 {
		result.WriteString(" none controlled")
	}
	for _, team := range teams {
		fmt.Fprintf(&result, " team %d: %d", team, controlled[team])
	}
	result.WriteString("\n")
	return result.String()
}
