/*
Package tui renders the live progress view of a benchmark run.

# Architecture

The view follows the Bubble Tea Model-Update-View pattern:
  - Model: ProgressModel holds the last polled counters
  - Update: a 100ms tick polls the ProgressSource; q, esc and ctrl+c detach
  - View: a progress bar plus success/failure counts and elapsed time

The model never touches the run itself. Detaching only stops the view;
the run continues and its report is printed when every worker is done.
*/
package tui
