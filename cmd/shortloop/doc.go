// Command shortloop is the CLI for the shortloop content engine: it runs
// discovery-and-publish loop iterations, applies collected analytics, and
// inspects the persistent source ranking and correlation state.
package main
