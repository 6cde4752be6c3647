// Package mcp exposes a local 2048 game as Model Context Protocol tools.
//
// Tools:
//   - game_state: current board, score and best score
//   - move: slide the board in a direction
//   - restart: abandon the current game and start a new one
//   - top_scores: recorded games, best first
//
// Every result is a JSON document. Finished games are recorded in the score
// store exactly as they are for the terminal and web front ends.
package mcp
