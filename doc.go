// Package routegate routes inbound text requests through a layered decision
// pipeline before any business workflow runs.
//
// Every request passes intent detection and priority scoring, a hard
// constraint gate and a soft value alignment gate. Blocked and deferred
// requests stop with a reason, requests needing the founder are parked in an
// approval queue and resumed once approved, and allowed requests are handed
// to exactly one workflow whose generation calls are admitted by a daily cost
// guard. Every completed decision is recorded in the reflection log.
//
// End-users typically interact with the router via the Service façade:
//
//	srv, _ := routegate.New(routegate.WithConfig(cfg))
//	resp, _ := srv.Route(ctx, "what is the price?", nil)
//	if resp.Status == model.StatusPendingApproval {
//		resp, _ = srv.Approve(ctx, resp.TraceID, "ok")
//	}
//
// For details see the individual sub-packages.
package routegate
