// Package staging manages the hidden sibling directories atomic builds write
// into before a bundle is published.
//
// A staging directory for output /srv/www/talk and run id R is
// /srv/www/.talk.partial-R. Commit renames it onto the output path; a crashed
// run leaves it behind, and CleanStale removes such leftovers.
package staging
