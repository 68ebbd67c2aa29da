// Package selection chooses which discovery sources participate in a run and
// how many downloads each one gets. Sampling is weighted by score so strong
// sources appear more often without starving the rest, and quota allocation
// conserves the run budget exactly.
package selection
