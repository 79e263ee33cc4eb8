// Package fixture implements the resolver, inventory and backend over a
// YAML-described domain held in memory.
//
// The dry run computes the findings a real analyzer would report from the
// domain itself: role mismatches, applications already (or not) installed,
// end-of-life releases, containers on container hosts and missing
// dependencies. Scripted findings and outcomes in the file add anything the
// domain cannot express. Successful executions update the in-memory domain,
// so a second run observes the first one.
//
// A minimal domain:
//
//	hosts:
//	  - name: primary.example
//	    role: primary
//	    local: true
//	catalog:
//	  - id: wiki
//	    name: Wiki
//	    version: "2.1"
//	    dependsOn: [db]
//	  - id: db
//	    version: "15"
//	findings:
//	  - host: primary.example
//	    app: wiki
//	    kind: shallHaveEnoughRam
//	    detail: {value: 512, reason: needs 1024 MB}
package fixture
