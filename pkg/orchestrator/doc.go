/*
Package orchestrator turns a free-text request into a multi-step run against a model.

A run has four phases, each one prompt exchange:

 1. analyze: classify the request (summary, type, complexity, domains).
 2. plan: break it into an ordered list of steps.
 3. execute: run every step in order, feeding it the results of the previous ones.
 4. synthesize: combine all step results into the final answer.

Malformed model output in the first two phases degrades to fixed fallbacks and never fails
the run. Transport failures abort the run with a single error and no partial trace.
*/
package orchestrator
