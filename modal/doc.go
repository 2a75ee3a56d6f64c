// Package modal exposes Modal CLI operations as catalog tools: app deploys,
// function runs and volume management.
package modal
