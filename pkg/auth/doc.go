// Package auth decides, per request, whether authentication is attempted,
// delegated or deferred, and relays challenge requests from nested handlers
// back up to the layer that knows how to issue them.
//
// # Authenticator
//
// Authenticator is the gate. For each request it evaluates, in order:
//
//  1. The request already carries a token attribute (stack.authn.token):
//     an outer layer authenticated it. Delegate to the application through
//     a ChallengeRelay.
//  2. The check strategy says credentials are present: hand the request and
//     the application to the authenticate strategy and return its response
//     untouched.
//  3. Anonymous access is allowed: delegate through a ChallengeRelay.
//  4. Otherwise answer 401, shaped by the challenge strategy, without
//     calling the application.
//
// # Challenge relay
//
// Any handler at any depth can ask for a challenge by answering
// 401 with "WWW-Authenticate: Stack" (see RequestChallenge). The nearest
// ChallengeRelay above it passes that response to its challenge strategy,
// which can turn it into a real challenge (a Bearer or Basic
// WWW-Authenticate header, a redirect to a login page).
//
// # Credential verification
//
// Verifiers examine request credentials and return a three-outcome vote:
// Yes (identity found), No (credentials invalid) or Abstain (can't handle).
// VerifyingAuthenticate turns a Verifier into the authenticate strategy the
// gate expects: it injects the identity into the request context and the
// token attribute, applies an optional rate limiter and delegates through a
// ChallengeRelay.
package auth
