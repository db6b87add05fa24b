// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventdb

const eventTableSchema = `
create table if not exists event (
	seq integer primary key,
	kind text not null,
	subject blob(32) not null,
	actor blob(20) not null,
	time integer not null,
	changes blob
);

CREATE INDEX if not exists kindIndex on event(kind);
CREATE INDEX if not exists subjectIndex on event(subject);
CREATE INDEX if not exists actorIndex on event(actor);
`
